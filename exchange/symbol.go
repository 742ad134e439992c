package exchange

const (
	BTCUSDT  = "BTC/USDT"
	ETHUSDT  = "ETH/USDT"
	SOLUSDT  = "SOL/USDT"
	BNBUSDT  = "BNB/USDT"
	XRPUSDT  = "XRP/USDT"
	DOGEUSDT = "DOGE/USDT"

	USDT = "USDT"
	USDC = "USDC"
	BTC  = "BTC"
	ETH  = "ETH"
	SOL  = "SOL"
	BNB  = "BNB"
	XRP  = "XRP"
	DOGE = "DOGE"
)
