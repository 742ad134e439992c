package mockexc

// wsFrame 推送帧信封, e 决定哪个负载非空
type wsFrame struct {
	Event           string            `json:"e"`
	EventTime       int64             `json:"E"`
	TransactionTime int64             `json:"T"`
	Order           *wsOrderUpdate    `json:"o,omitempty"`
	Position        *wsPositionUpdate `json:"p,omitempty"`
	Account         *wsAccountUpdate  `json:"a,omitempty"`
}

type wsOrderUpdate struct {
	ID            string `json:"i"`
	ClientOrderID string `json:"c"`
	Symbol        string `json:"s"`
	Instrument    string `json:"it"`
	Side          string `json:"S"`
	PositionSide  string `json:"ps"`
	Type          string `json:"o"`
	TimeInForce   string `json:"f"`
	Status        string `json:"X"`
	Volume        string `json:"q"`
	FilledVolume  string `json:"z"`
	LatestVolume  string `json:"l"` // quantity for the latest trade
	Price         string `json:"p"`
	TriggerPrice  string `json:"sp"`
	AvgPrice      string `json:"ap"`
	FeeAsset      string `json:"N"`
	FeeCost       string `json:"n"`
}

type wsPositionUpdate struct {
	Symbol           string `json:"s"`
	Instrument       string `json:"it"`
	Side             string `json:"ps"`
	Size             string `json:"sz"`
	EntryPrice       string `json:"ep"`
	MarkPrice        string `json:"mp"`
	Leverage         string `json:"lv"`
	UnrealizedPnL    string `json:"up"`
	RealizedPnL      string `json:"rp"`
	InitialMargin    string `json:"im"`
	MaintMargin      string `json:"mm"`
	LiquidationPrice string `json:"lq"`
}

type wsAccountUpdate struct {
	Currency      string `json:"a"`
	Equity        string `json:"eq"`
	Balance       string `json:"wb"` // wallet balance
	Available     string `json:"ab"`
	InitialMargin string `json:"im"`
	MaintMargin   string `json:"mm"`
	UnrealizedPnL string `json:"up"`
	SessionPnL    string `json:"cw"`
}
