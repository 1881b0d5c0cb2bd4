package transport

// Version is reported to MCP clients and by the CLI. Release builds set it
// via ldflags:
//
//	-X github.com/Easy-Infra-Ltd/deepguard-screener/src/transport.Version=<tag>
var Version = "dev"
