package types

type PayloadAction = string

var (
	ActionSubmit PayloadAction = "submit"
	ActionCancel PayloadAction = "cancel"
	ActionReload PayloadAction = "reload"
	ActionSweep  PayloadAction = "sweep"
	ActionUpdate PayloadAction = "update"
)

type TakerType = string

var (
	TypeBuy  TakerType = "buy"
	TypeSell TakerType = "sell"
)

type Depth struct {
	Asks     [][]string `json:"asks"`
	Bids     [][]string `json:"bids"`
	Sequence uint64     `json:"sequence"`
}
