package general

// DefaultEmailDomain is applied when the config document omits emailDomain.
const DefaultEmailDomain = "adobetest.com"

// Document mirrors the general.json configuration document.
type Document struct {
	Config   Config   `json:"config"`
	Customer Customer `json:"customer"`
	TestPush TestPush `json:"testPush"`
	Target   Target   `json:"target"`
	Map      Map      `json:"map"`
}

// Config holds tenant settings and feature-visibility flags.
type Config struct {
	Tenant              string  `json:"tenant"`
	Sandbox             string  `json:"sandbox"`
	ShowProducts        bool    `json:"showProducts"`
	ShowPersonalisation bool    `json:"showPersonalisation"`
	ShowGeofences       bool    `json:"showGeofences"`
	ShowBeacons         bool    `json:"showBeacons"`
	LDAP                string  `json:"ldap"`
	TMS                 string  `json:"tms"`
	EmailDomain         *string `json:"emailDomain"`
}

// Customer holds branding settings.
type Customer struct {
	Name                string `json:"name"`
	Logo                string `json:"logo"`
	ProductsType        string `json:"productsType"`
	ProductsSystemImage string `json:"productsSystemImage"`
	Currency            string `json:"currency"`
}

// TestPush identifies the event type used for test push events.
type TestPush struct {
	Name      string `json:"name"`
	EventType string `json:"eventType"`
}

// Target holds the target personalization location.
type Target struct {
	Location string `json:"location"`
}

// Map holds the initial map center.
type Map struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Zoom      float64 `json:"zoom"`
}

// MapCenter is the map position carried on a configuration snapshot.
type MapCenter struct {
	Longitude float64
	Latitude  float64
	Zoom      float64
}

// Configuration is the immutable, flattened snapshot derived from a
// Document. It is replaced wholesale on every reload, never merged.
type Configuration struct {
	Tenant              string
	Sandbox             string
	ShowProducts        bool
	ShowPersonalisation bool
	ShowGeofences       bool
	ShowBeacons         bool
	LDAP                string
	TMS                 string
	EmailDomain         string
	BrandName           string
	BrandLogo           string
	ProductsType        string
	ProductsSystemImage string
	Currency            string
	TestPushEventType   string
	TargetLocation      string
	MapCenter           MapCenter
}

// Configuration flattens the document into a snapshot, applying the
// documented defaults for optional fields.
func (d Document) Configuration() Configuration {
	emailDomain := DefaultEmailDomain
	if d.Config.EmailDomain != nil && *d.Config.EmailDomain != "" {
		emailDomain = *d.Config.EmailDomain
	}
	return Configuration{
		Tenant:              d.Config.Tenant,
		Sandbox:             d.Config.Sandbox,
		ShowProducts:        d.Config.ShowProducts,
		ShowPersonalisation: d.Config.ShowPersonalisation,
		ShowGeofences:       d.Config.ShowGeofences,
		ShowBeacons:         d.Config.ShowBeacons,
		LDAP:                d.Config.LDAP,
		TMS:                 d.Config.TMS,
		EmailDomain:         emailDomain,
		BrandName:           d.Customer.Name,
		BrandLogo:           d.Customer.Logo,
		ProductsType:        d.Customer.ProductsType,
		ProductsSystemImage: d.Customer.ProductsSystemImage,
		Currency:            d.Customer.Currency,
		TestPushEventType:   d.TestPush.EventType,
		TargetLocation:      d.Target.Location,
		MapCenter: MapCenter{
			Longitude: d.Map.Longitude,
			Latitude:  d.Map.Latitude,
			Zoom:      d.Map.Zoom,
		},
	}
}

// Example is the built-in fallback document used when the general config
// cannot be fetched or parsed.
func Example() Document {
	return Document{
		Config: Config{
			ShowProducts:        true,
			ShowPersonalisation: true,
			ShowGeofences:       true,
			ShowBeacons:         true,
		},
		Customer: Customer{Currency: "$"},
	}
}
