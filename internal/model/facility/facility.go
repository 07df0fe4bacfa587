package facility

import "net/url"

// Facility is one entry of the static medical facility directory shown in
// the "Nearest Hospitals" panel.
type Facility struct {
	Name     string `json:"name"`
	Distance string `json:"distance"`
	Contact  string `json:"contact"`
	Address  string `json:"address"`
}

// Seed provides the hard-coded facility directory. There is no dynamic
// lookup behind this list.
func Seed() []Facility {
	return []Facility{
		{Name: "Community Health Center", Distance: "2 km", Contact: "102", Address: "Village Main Road, Rampur"},
		{Name: "District Hospital", Distance: "10 km", Contact: "9876543210", Address: "Civil Lines, District HQ"},
		{Name: "Primary Health Sub-center", Distance: "500 m", Contact: "108", Address: "Next to Panchayat Office, Sitapur"},
	}
}

// MapsURL returns an external map search link for the facility.
func (f Facility) MapsURL() string {
	query := url.QueryEscape(f.Name + "," + f.Address)
	return "https://www.google.com/maps/search/?api=1&query=" + query
}

// TelURL returns the telephone link for the facility contact number.
func (f Facility) TelURL() string {
	return "tel:" + f.Contact
}
