// Package discovery finds inkwell servers on the local network over mDNS.
//
// A server started with `inkwell-server serve` registers the "_inkwell._tcp"
// service with TXT records naming the application, its version and the API
// and preview paths. Editors started with --discover browse for that service
// and use the first backend whose "app" record is "inkwell".
//
// # Usage Example
//
//	ad, err := discovery.Advertise("inkwell on studio", 8080, discovery.TXTRecords(version.Version))
//	if err != nil {
//	    return err
//	}
//	defer ad.Shutdown()
//
//	backend, err := discovery.NewScanner().First(ctx)
//	if err == nil {
//	    fmt.Println("using", backend.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Server and editor must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
