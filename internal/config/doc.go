// Package config defines the fixed kupferbootstrap configuration schema
// and loads it with strict, unknown-key-rejecting YAML decoding.
//
//	cfg, err := config.LoadDefault()
//	if err != nil {
//		return err
//	}
//	threads := cfg.Threads(runtime.NumCPU())
package config
