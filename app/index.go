package app

import "net/http"

func (a *App) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>roomrelay</title>
    <script src="https://cdn.socket.io/4.7.5/socket.io.min.js"></script>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        #messages { border: 1px solid #ccc; height: 300px; overflow-y: scroll; padding: 10px; margin: 20px 0; }
        .message { margin: 5px 0; padding: 5px; }
        .system { color: #666; font-style: italic; }
        input, button { padding: 10px; margin: 5px; }
        input[type="text"] { width: 300px; }
    </style>
</head>
<body>
    <h1>roomrelay</h1>
    <div>
        <input type="text" id="nickname" placeholder="Nickname">
        <input type="text" id="room" placeholder="Room (default: lobby)">
        <button onclick="login()">Join</button>
    </div>
    <div id="messages"></div>
    <div>
        <input type="text" id="message" placeholder="Message or /help">
        <button onclick="sendMessage()">Send</button>
    </div>

    <script>
        const socket = io({ transports: ['websocket'] });

        socket.on('connect', () => addMessage('Connected', 'system'));
        socket.on('disconnect', () => addMessage('Disconnected', 'system'));

        socket.on('userJoined', (data) => addMessage(data.nickname + ' joined', 'system'));
        socket.on('userLeft', (data) => addMessage(data.nickname + ' left', 'system'));
        socket.on('nameChanged', (data) => addMessage(data.oldNickname + ' -> ' + data.newNickname, 'system'));
        socket.on('chat', (data) => addMessage(data.nickname + ': ' + data.message, data.id === 'system' ? 'system' : ''));
        socket.on('move', (data) => addMessage(data.id + ' moved to ' + JSON.stringify(data.position), 'system'));

        document.addEventListener('mousemove', throttle((e) => {
            socket.emit('move', { x: e.clientX, y: e.clientY });
        }, 1000));

        function login() {
            socket.emit('login', {
                nickname: document.getElementById('nickname').value,
                roomId: document.getElementById('room').value
            });
        }

        function sendMessage() {
            const input = document.getElementById('message');
            if (input.value) {
                socket.emit('chat', input.value);
                input.value = '';
            }
        }

        function addMessage(text, cls) {
            const div = document.createElement('div');
            div.className = 'message ' + cls;
            div.textContent = text;
            const box = document.getElementById('messages');
            box.appendChild(div);
            box.scrollTop = box.scrollHeight;
        }

        function throttle(fn, ms) {
            let last = 0;
            return (...args) => {
                const now = Date.now();
                if (now - last >= ms) {
                    last = now;
                    fn(...args);
                }
            };
        }

        document.getElementById('message').addEventListener('keypress', (e) => {
            if (e.key === 'Enter') sendMessage();
        });
    </script>
</body>
</html>
`
