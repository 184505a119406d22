package domain

// CountOverlapping counts existing ranges overlapping window.
// Malformed existing ranges (From > To) are skipped.
func CountOverlapping(existing []DateRange, window DateRange) (int, error) {
	if err := window.Validate(); err != nil {
		return 0, err
	}
	n := 0
	for _, r := range existing {
		ok, err := Overlaps(r, window)
		if err != nil {
			continue
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// Available returns quantity - overlapping, never negative.
// A negative difference means the room is oversold; 0 is returned together with ErrDataIntegrityFault.
func Available(quantity, overlapping int) (int, error) {
	free := quantity - overlapping
	if free < 0 {
		return 0, ErrDataIntegrityFault
	}
	return free, nil
}

// RoomAvailability pairs a room with its overlapping booking count for a window.
type RoomAvailability struct {
	Room        Room
	Overlapping int
}

// Free is the clamped available units. Integrity faults count as zero.
func (ra RoomAvailability) Free() int {
	n, _ := Available(ra.Room.Quantity, ra.Overlapping)
	return n
}

// HotelHasAvailability reports whether at least one room has a free unit.
func HotelHasAvailability(rooms []RoomAvailability) bool {
	for _, ra := range rooms {
		if ra.Free() > 0 {
			return true
		}
	}
	return false
}

// FilterAvailable keeps rooms with a free unit, preserving order.
// onFault is called for every oversold room; it may be nil.
func FilterAvailable(rooms []RoomAvailability, onFault func(RoomAvailability)) []Room {
	out := make([]Room, 0, len(rooms))
	for _, ra := range rooms {
		n, err := Available(ra.Room.Quantity, ra.Overlapping)
		if err != nil && onFault != nil {
			onFault(ra)
		}
		if n > 0 {
			out = append(out, ra.Room)
		}
	}
	return out
}
