package domain

type Hotel struct {
	ID       int64
	Title    string
	Location string
}

type Room struct {
	ID          int64
	HotelID     int64
	Title       string
	Description *string
	Price       int64 // minor currency units per night
	Quantity    int
	FacilityIDs []int64
}

type Facility struct {
	ID    int64
	Title string
}

type User struct {
	ID             int64
	Email          string
	HashedPassword string
}

// HotelInput is the full-replace payload for create and PUT.
type HotelInput struct {
	Title    string
	Location string
}

// HotelPatch carries only the fields a PATCH sets.
type HotelPatch struct {
	Title    Optional[string]
	Location Optional[string]
}

func (p HotelPatch) Apply(h Hotel) Hotel {
	if v, ok := p.Title.Get(); ok {
		h.Title = v
	}
	if v, ok := p.Location.Get(); ok {
		h.Location = v
	}
	return h
}

type RoomInput struct {
	Title       string
	Description *string
	Price       int64
	Quantity    int
	FacilityIDs []int64
}

type RoomPatch struct {
	Title       Optional[string]
	Description Optional[*string]
	Price       Optional[int64]
	Quantity    Optional[int]
	FacilityIDs Optional[[]int64]
}

// Apply returns r with the set fields replaced.
func (p RoomPatch) Apply(r Room) Room {
	if v, ok := p.Title.Get(); ok {
		r.Title = v
	}
	if v, ok := p.Description.Get(); ok {
		r.Description = v
	}
	if v, ok := p.Price.Get(); ok {
		r.Price = v
	}
	if v, ok := p.Quantity.Get(); ok {
		r.Quantity = v
	}
	if v, ok := p.FacilityIDs.Get(); ok {
		r.FacilityIDs = v
	}
	return r
}
