package model

// CustomerRef is a closed union over the two ways an order can reference
// its buyer: a registered account or a guest contact snapshot.
type CustomerRef interface {
	isCustomerRef()
}

type RegisteredCustomer struct {
	CustomerID string
}

type GuestCustomer struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

func (RegisteredCustomer) isCustomerRef() {}
func (GuestCustomer) isCustomerRef()      {}

func (o *Order) Customer() CustomerRef {
	if o.CustomerID != nil && *o.CustomerID != "" {
		return RegisteredCustomer{CustomerID: *o.CustomerID}
	}
	return GuestCustomer{
		Name:    o.GuestName,
		Phone:   o.GuestPhone,
		Email:   o.GuestEmail,
		Address: o.GuestAddress,
	}
}
