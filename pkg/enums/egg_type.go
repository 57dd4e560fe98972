package enums

// EggType distinguishes regular and eggless preparations of an item.
type EggType string

const (
	EggTypeEgg     EggType = "EGG"
	EggTypeEggless EggType = "EGGLESS"
)

func (e EggType) IsValid() bool {
	return e == EggTypeEgg || e == EggTypeEggless
}
