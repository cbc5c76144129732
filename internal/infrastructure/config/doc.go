// Package config provides configuration loading for WePower IoT Core.
//
// Configuration is loaded from a YAML file with environment variable
// overrides (WEPOWER_* pattern) and validated before use. The package also
// owns Settings, the runtime-mutable view of the per-transport enable flags
// that inbound control commands toggle while the scan loop is running.
package config
