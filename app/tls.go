package kiosk

import "crypto/tls"

// defaultTLSConfig is installed on the server in prod mode. Kiosk
// displays are long-lived unattended clients that never renegotiate, so
// the floor is TLS 1.2 with ECDHE suites preferred; a display too old to
// speak that should not be on the venue network.
var defaultTLSConfig = tls.Config{
	MinVersion: tls.VersionTLS12,
	CurvePreferences: []tls.CurveID{
		tls.CurveP521,
		tls.CurveP384,
		tls.CurveP256,
	},
	CipherSuites: []uint16{
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
		tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_RSA_WITH_AES_256_CBC_SHA,
	},
}
