package tunnel

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/yamux"
)

// SecretHeader carries the pre-shared gateway secret.
const SecretHeader = "X-Gateway-Secret"

// Client dials out to a gateway and serves the figure API through it, so a
// remote browser can drive figures on this machine.
type Client struct {
	gatewayURL string // wss://gateway.example.com/tunnel
	secret     string
	localAddr  string // e.g. localhost:8800

	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func NewClient(gatewayURL, secret, localAddr string) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		secret:     secret,
		localAddr:  localAddr,
		MinBackoff: time.Second,
		MaxBackoff: 30 * time.Second,
	}
}

// Run keeps a tunnel open until ctx is done, reconnecting with exponential
// backoff. It always returns ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	backoff := c.MinBackoff
	for {
		connected, err := c.connect(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = c.MinBackoff
		}
		log.Printf("tunnel: %v", err)
		log.Printf("tunnel: reconnecting in %s...", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if !connected {
			backoff = min(backoff*2, c.MaxBackoff)
		}
	}
}

// connect runs one tunnel session. connected reports whether the gateway
// handshake succeeded before the session ended.
func (c *Client) connect(ctx context.Context) (connected bool, err error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		// Gateways often run with self-signed certs; the secret authenticates
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}

	header := http.Header{}
	header.Set(SecretHeader, c.secret)

	wsConn, _, err := dialer.DialContext(ctx, c.gatewayURL, header)
	if err != nil {
		return false, fmt.Errorf("dial gateway: %w", err)
	}
	defer wsConn.Close()

	log.Printf("tunnel: connected to gateway %s", c.gatewayURL)

	// The gateway opens streams; this side accepts them
	session, err := yamux.Server(NewWSConn(wsConn), yamux.DefaultConfig())
	if err != nil {
		return true, fmt.Errorf("yamux server: %w", err)
	}
	defer session.Close()

	stop := context.AfterFunc(ctx, func() { session.Close() })
	defer stop()

	for {
		stream, err := session.Accept()
		if err != nil {
			return true, fmt.Errorf("accept stream: %w", err)
		}
		go c.handleStream(stream)
	}
}

func (c *Client) handleStream(stream net.Conn) {
	defer stream.Close()

	local, err := net.Dial("tcp", c.localAddr)
	if err != nil {
		log.Printf("tunnel: dial local %s: %v", c.localAddr, err)
		return
	}
	defer local.Close()

	done := make(chan struct{})
	go func() {
		io.Copy(local, stream)
		if tc, ok := local.(*net.TCPConn); ok {
			tc.CloseWrite()
		}
		close(done)
	}()
	io.Copy(stream, local)
	<-done
}
