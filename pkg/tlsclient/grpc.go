package tlsclient

import "google.golang.org/grpc/credentials"

// TransportCredentials returns gRPC transport credentials backed by this
// context, for use with grpc.WithTransportCredentials when dialing.
func (c *ClientContext) TransportCredentials() credentials.TransportCredentials {
	return credentials.NewTLS(c.TLSConfig())
}
