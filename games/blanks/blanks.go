package blanks

import (
	_ "embed"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

//go:embed client/index.html
var indexHTML []byte

// engine bundles the identity layer and the room directory behind the
// websocket endpoint.
type engine struct {
	opts     Options
	sessions *SessionManager
	registry *Registry
}

// Register sets up routes so that:
//   - $path              → lobby client
//   - $path/:roomid      → client joining a specific room
//   - $path/:roomid/qr   → PNG QR code for that room URL
//   - /ws$path           → WebSocket carrying all game traffic
func Register(prefix, path string, mux *httprouter.Router, opts Options) {
	e := &engine{
		opts:     opts,
		sessions: newSessionManager(opts.grace(), opts.logf()),
	}
	e.registry = newRegistry(opts, e.sessions)

	mux.GET(prefix+path, serveClient)
	mux.GET(prefix+path+"/:roomid", serveClient)
	mux.GET(prefix+path+"/:roomid/qr", qrHandler)
	mux.GET(prefix+"/ws"+path, serveWS(e))
}

func serveClient(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))

	_, _ = w.Write(indexHTML)
}

// qrHandler generates a PNG QR code for the current room URL.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("roomid")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:roomid/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
