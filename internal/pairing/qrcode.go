// Package pairing renders the server address as a QR code so a phone or
// second machine can attach to the running codexdesk session.
package pairing

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/skip2/go-qrcode"
)

// PairingInfo contains the information encoded in the QR code.
type PairingInfo struct {
	WebSocket string `json:"ws"`
	HTTP      string `json:"http"`
	Project   string `json:"project,omitempty"`
}

// QRGenerator generates QR codes for the session server.
type QRGenerator struct {
	host        string
	port        int
	project     string
	externalURL string // Optional public URL, e.g. behind a tunnel
}

// NewQRGenerator creates a new QR code generator for host:port.
func NewQRGenerator(host string, port int) *QRGenerator {
	return &QRGenerator{host: host, port: port}
}

// SetExternalURL sets the public HTTP URL used instead of host:port.
// The WebSocket URL is derived from it.
func (g *QRGenerator) SetExternalURL(httpURL string) {
	g.externalURL = strings.TrimRight(httpURL, "/")
}

// SetProject sets the project name shown by the scanning client.
func (g *QRGenerator) SetProject(name string) {
	g.project = name
}

// GetPairingInfo returns the pairing information.
func (g *QRGenerator) GetPairingInfo() *PairingInfo {
	httpURL := fmt.Sprintf("http://%s:%d", g.host, g.port)
	if g.externalURL != "" {
		httpURL = g.externalURL
	}

	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"

	return &PairingInfo{
		WebSocket: wsURL,
		HTTP:      httpURL,
		Project:   g.project,
	}
}

// GenerateJSON returns the pairing info as JSON.
func (g *QRGenerator) GenerateJSON() (string, error) {
	data, err := json.Marshal(g.GetPairingInfo())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GenerateTerminal generates a QR code for terminal display.
func (g *QRGenerator) GenerateTerminal() (string, error) {
	jsonData, err := g.GenerateJSON()
	if err != nil {
		return "", err
	}

	qr, err := qrcode.New(jsonData, qrcode.Medium)
	if err != nil {
		return "", err
	}
	return qr.ToSmallString(false), nil
}

// GeneratePNG generates a PNG image of the QR code.
func (g *QRGenerator) GeneratePNG(size int) ([]byte, error) {
	jsonData, err := g.GenerateJSON()
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(jsonData, qrcode.Medium, size)
}

// Print writes the QR code to w with a caption.
func (g *QRGenerator) Print(w io.Writer) {
	qrStr, err := g.GenerateTerminal()
	if err != nil {
		fmt.Fprintf(w, "  [Error generating QR code: %v]\n", err)
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Connect to %s:\n", g.GetPairingInfo().HTTP)
	fmt.Fprintln(w)

	for _, line := range strings.Split(qrStr, "\n") {
		if line != "" {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	fmt.Fprintln(w)
}
