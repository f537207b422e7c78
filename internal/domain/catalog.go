package domain

// PaletteEntry is a device kind offered by the icon palette
type PaletteEntry struct {
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

// DefaultPalette lists the built-in device kinds.
var DefaultPalette = []PaletteEntry{
	{Type: "router", Icon: "/networkmap/icons/network/Router-2D-Gen-Dark-S.svg", Label: "Router"},
	{Type: "switch", Icon: "/networkmap/icons/network/Switch-2D-L2-Generic-S.svg", Label: "Switch"},
	{Type: "firewall", Icon: "/networkmap/icons/network/Firewall-2D-Gen-Dark-S.svg", Label: "Firewall"},
	{Type: "server", Icon: "/networkmap/icons/network/Server-2D-Gen-Dark-S.svg", Label: "Server"},
	{Type: "cloud", Icon: "/networkmap/icons/network/Cloud-2D-Gen-Dark-S.svg", Label: "Cloud"},
	{Type: "laptop", Icon: "/networkmap/icons/general/Laptop-2D-Gen-Dark-S.svg", Label: "Laptop"},
}

// LookupPalette returns the built-in entry for a device kind.
func LookupPalette(deviceType string) (PaletteEntry, bool) {
	for _, e := range DefaultPalette {
		if e.Type == deviceType {
			return e, true
		}
	}
	return PaletteEntry{}, false
}
