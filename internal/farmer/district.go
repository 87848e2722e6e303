package farmer

// District is one of Sri Lanka's 25 administrative districts.
type District string

var Districts = []District{
	"Colombo", "Gampaha", "Kalutara",
	"Kandy", "Matale", "Nuwara Eliya",
	"Galle", "Matara", "Hambantota",
	"Jaffna", "Kilinochchi", "Mannar", "Vavuniya", "Mullaitivu",
	"Batticaloa", "Ampara", "Trincomalee",
	"Kurunegala", "Puttalam",
	"Anuradhapura", "Polonnaruwa",
	"Badulla", "Monaragala",
	"Ratnapura", "Kegalle",
}

var districtSet = func() map[District]struct{} {
	m := make(map[District]struct{}, len(Districts))
	for _, d := range Districts {
		m[d] = struct{}{}
	}
	return m
}()

func (d District) Valid() bool {
	_, ok := districtSet[d]
	return ok
}
