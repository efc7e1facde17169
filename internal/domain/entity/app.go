package entity

// App identifies one of the SafeSuite consumer applications.
type App string

const (
	AppSafeTunes App = "safetunes"
	AppSafeTube  App = "safetube"
	AppSafeReads App = "safereads"
)

// AllApps returns every known app in stable order.
func AllApps() []App {
	return []App{AppSafeTunes, AppSafeTube, AppSafeReads}
}

// ParseApp maps a raw identifier to an App. Unknown values are rejected.
func ParseApp(s string) (App, bool) {
	switch App(s) {
	case AppSafeTunes, AppSafeTube, AppSafeReads:
		return App(s), true
	}
	return "", false
}

// AppStatus is the result of a status check against one app's admin endpoint.
type AppStatus struct {
	App       App    `json:"app"`
	Found     bool   `json:"found"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	Error     string `json:"error,omitempty"`
}
