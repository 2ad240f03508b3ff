package xrpl

// Request/response shapes for the subset of the XRP Ledger JSON-RPC API this
// client uses. Fields follow the rippled naming, hence the mixed casing.

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type accountInfoParams struct {
	Account     string `json:"account"`
	LedgerIndex string `json:"ledger_index"`
}

type accountInfoResult struct {
	Status      string `json:"status"`
	ErrorCode   string `json:"error,omitempty"`
	AccountData struct {
		Balance  string `json:"Balance"`
		Sequence uint32 `json:"Sequence"`
	} `json:"account_data"`
}

type submitParams struct {
	Secret string    `json:"secret"`
	TxJSON paymentTx `json:"tx_json"`
}

type paymentTx struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	Destination     string `json:"Destination"`
	Amount          string `json:"Amount"`
	Fee             string `json:"Fee"`
	Sequence        uint32 `json:"Sequence"`
	InvoiceID       string `json:"InvoiceID,omitempty"`
	Hash            string `json:"hash,omitempty"`
}

type submitResult struct {
	Status              string    `json:"status"`
	ErrorCode           string    `json:"error,omitempty"`
	EngineResult        string    `json:"engine_result"`
	EngineResultMessage string    `json:"engine_result_message"`
	TxJSON              paymentTx `json:"tx_json"`
}

type txParams struct {
	Transaction string `json:"transaction"`
}

type txResult struct {
	Status    string `json:"status"`
	ErrorCode string `json:"error,omitempty"`
	Validated bool   `json:"validated"`
	Meta      struct {
		TransactionResult string `json:"TransactionResult"`
	} `json:"meta"`
}

type accountTxParams struct {
	Account        string `json:"account"`
	LedgerIndexMin int64  `json:"ledger_index_min"`
	LedgerIndexMax int64  `json:"ledger_index_max"`
}

type accountTxResult struct {
	Status       string `json:"status"`
	ErrorCode    string `json:"error,omitempty"`
	Transactions []struct {
		Tx paymentTx `json:"tx"`
	} `json:"transactions"`
}

type rpcResponse[R any] struct {
	Result R `json:"result"`
}

// Engine results this client classifies. tefPAST_SEQ means the sequence
// number was already consumed by a validated transaction from this account;
// terPRE_SEQ means the sequence raced ahead of the account's current one.
const (
	engineSuccess    = "tesSUCCESS"
	engineQueued     = "terQUEUED"
	enginePastSeq    = "tefPAST_SEQ"
	enginePreSeq     = "terPRE_SEQ"
	errorTxNotFound  = "txnNotFound"
	resultStatusOK   = "success"
	validatedLedgers = "validated"
)

// Engine results under which the payment has been accepted for a ledger and
// the returned hash may be recorded as the payment reference.
var acceptedEngineResults = []string{engineSuccess, engineQueued}
