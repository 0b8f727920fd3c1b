package railway

// NamedResource provides a common interface for any resource that has a name and an ID.
// Projects, environments, services and volumes all do.
type NamedResource interface {
	GetName() string
	GetId() string
}

type NameId struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

func (n NameId) GetName() string {
	return n.Name
}

func (n NameId) GetId() string {
	return n.Id
}
