// Package config handles loading and validating Frontdesk Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The admin shared secret should be set via FRONTDESK_ADMIN_PASSWORD, not the file
//   - The config file should have restricted permissions (0600)
//   - Session cookies are only marked Secure in production behind HTTPS
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Auth.SessionTTL)
package config
