package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: board name (as registered with boards.Register)
// Val: raw JSON defaults for that board
// -----------------------------------------------------------------------------

const cfgSMDK6410 = `{
  "features": {
    "sd_ch0": true,
    "sd_ch1": false,
    "wm1190_ev1": false
  }
}`

var embeddedConfigs = map[string][]byte{
	"smdk6410": []byte(cfgSMDK6410),
}
