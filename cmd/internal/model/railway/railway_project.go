package railway

type Project struct {
	NameId
	Services     Connection[Service]     `json:"services"`
	Environments Connection[Environment] `json:"environments"`
}

type Environment struct {
	NameId
}

type Service struct {
	NameId
	CreatedAt   string                 `json:"createdAt,omitempty"`
	UpdatedAt   string                 `json:"updatedAt,omitempty"`
	Deployments Connection[Deployment] `json:"deployments"`
}

type Volume struct {
	NameId
}

type ServiceDomain struct {
	Id     string `json:"id"`
	Domain string `json:"domain"`
}

type Deployment struct {
	Id        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	StaticUrl string `json:"staticUrl,omitempty"`
}

// Me is the account that owns the API token.
type Me struct {
	Id    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
