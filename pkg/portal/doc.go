// Package portal provides the authenticated session against the payroll portal.
//
// A Client owns a cookie jar, the account's basic-auth credentials and a
// fixed-interval throttle. Construction performs the warm-up request that
// establishes the session cookies; every later request goes through
// Request, which waits out the throttle first.
//
// Example usage:
//
//	client, err := portal.NewClient(ctx, portal.OptionsFromConfig(cfg, log))
//	if err != nil {
//	    return err
//	}
//
//	statements, err := client.ListStatements(ctx, cfg.RequestLimit)
//	if err != nil {
//	    return err
//	}
//
//	for _, s := range statements {
//	    resp, err := client.Request(ctx, client.DocumentURL(s.StatementImageURI.Href), nil)
//	    // stream resp.Body to disk
//	}
package portal
