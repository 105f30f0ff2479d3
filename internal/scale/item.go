package scale

// Item names one measurement of a Scale.
type Item int

const (
	ItemLine Item = iota
	ItemInterline
	ItemBeam
	ItemSmallInterline
	ItemSmallBeam
	ItemStem
)

// Items lists every Item in display order.
func Items() []Item {
	return []Item{ItemLine, ItemInterline, ItemBeam, ItemSmallInterline, ItemSmallBeam, ItemStem}
}

func (i Item) String() string {
	switch i {
	case ItemLine:
		return "line"
	case ItemInterline:
		return "interline"
	case ItemBeam:
		return "beam"
	case ItemSmallInterline:
		return "smallInterline"
	case ItemSmallBeam:
		return "smallBeam"
	case ItemStem:
		return "stem"
	default:
		return "unknown"
	}
}

// Description returns a human readable label for the item.
func (i Item) Description() string {
	switch i {
	case ItemLine:
		return "Staff line thickness"
	case ItemInterline:
		return "Staff interline"
	case ItemBeam:
		return "Beam thickness"
	case ItemSmallInterline:
		return "Small staff interline"
	case ItemSmallBeam:
		return "Small staff beam thickness"
	case ItemStem:
		return "Stem thickness"
	default:
		return "Unknown item"
	}
}

// Value returns the pixel value of item in s, and whether it is known.
func (s *Scale) Value(item Item) (int, bool) {
	switch item {
	case ItemLine:
		return s.Line.Main, true
	case ItemInterline:
		return s.Interline.Main, true
	case ItemBeam:
		return s.Beam.Main, true
	case ItemSmallInterline:
		if s.SmallInterline == nil {
			return 0, false
		}
		return s.SmallInterline.Main, true
	case ItemSmallBeam:
		if s.SmallBeam == nil {
			return 0, false
		}
		return s.SmallBeam.Main, true
	case ItemStem:
		if s.Stem == nil {
			return 0, false
		}
		return s.Stem.Main, true
	default:
		return 0, false
	}
}
