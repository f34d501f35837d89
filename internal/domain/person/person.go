package person

import "time"

type Person struct {
	ID        int64
	Name      string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Address struct {
	ID        int64
	PersonID  int64
	Street    string
	Number    string
	District  string
	City      string
	State     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PersonDraft carries the caller-supplied fields of a person, stored as
// given. Ids are always assigned by the store.
type PersonDraft struct {
	Name  string
	Phone string
}

type AddressDraft struct {
	PersonID int64
	Street   string
	Number   string
	District string
	City     string
	State    string
}

// Draft returns the mutable fields of p.
func (p Person) Draft() PersonDraft {
	return PersonDraft{Name: p.Name, Phone: p.Phone}
}

func (a Address) Draft() AddressDraft {
	return AddressDraft{
		PersonID: a.PersonID,
		Street:   a.Street,
		Number:   a.Number,
		District: a.District,
		City:     a.City,
		State:    a.State,
	}
}

// PersonPatch is a partial update; nil fields are left unchanged.
type PersonPatch struct {
	Name  *string
	Phone *string
}

func (p PersonPatch) Apply(d PersonDraft) PersonDraft {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Phone != nil {
		d.Phone = *p.Phone
	}
	return d
}

func (p PersonPatch) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil
}

// AddressPatch is a partial update of an address. The owning person cannot
// be changed.
type AddressPatch struct {
	Street   *string
	Number   *string
	District *string
	City     *string
	State    *string
}

func (p AddressPatch) Apply(d AddressDraft) AddressDraft {
	if p.Street != nil {
		d.Street = *p.Street
	}
	if p.Number != nil {
		d.Number = *p.Number
	}
	if p.District != nil {
		d.District = *p.District
	}
	if p.City != nil {
		d.City = *p.City
	}
	if p.State != nil {
		d.State = *p.State
	}
	return d
}

func (p AddressPatch) IsEmpty() bool {
	return p.Street == nil && p.Number == nil && p.District == nil && p.City == nil && p.State == nil
}

type Page struct {
	Offset int
	Limit  int
}

// AddressFilter narrows address listings. A zero PersonID lists every
// address.
type AddressFilter struct {
	PersonID int64
}
