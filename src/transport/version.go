package transport

// Version is reported to MCP clients as the server version. It is set at
// build time with
//
//	-ldflags "-X github.com/Easy-Infra-Ltd/easy-input-guard/src/transport.Version=<tag>"
//
// and reads "dev" otherwise.
var Version = "dev"
