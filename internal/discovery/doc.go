// Package discovery finds EmPOWER controllers on the local network over mDNS
// and advertises the simulator the same way.
//
// Controllers advertise "_empower._tcp" in "local." with TXT records:
//
//	path=/api/v1
//	tenant=<tenant uuid>    (optional)
//	version=<build>         (optional)
//
// # Usage Example
//
//	controllers, err := discovery.Scan(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, c := range controllers {
//	    fmt.Println(c.Instance, c.BaseURL(), c.Tenant())
//	}
//
// Advertising:
//
//	ad, err := discovery.Advertise("rrcmon-sim", 8888, discovery.AdvertiseTXT(tenant, "/api/v1", version.Version))
//	if err != nil {
//	    return err
//	}
//	defer ad.Shutdown()
package discovery
