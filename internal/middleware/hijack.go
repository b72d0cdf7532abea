package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// hijack lets wrapped writers pass websocket upgrades through.
func hijack(w http.ResponseWriter) (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
