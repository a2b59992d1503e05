package domain

// Order pipeline stages exactly as the platform writes them. Matching is
// case- and accent-sensitive: the upstream vocabulary is the contract, and an
// unknown string indexes as -1 (rendered as the first stage by consumers).
const (
	StatusPlaced    = "pedido realizado"
	StatusConfirmed = "pedido confirmado"
	StatusPreparing = "pedido sendo preparado"
	StatusReady     = "pedido pronto"
	StatusEnRoute   = "pedido em rota de entrega"
	StatusDelivered = "pedido entregue"
)

// OrderStatuses lists the six stages in pipeline order.
var OrderStatuses = []string{
	StatusPlaced,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusEnRoute,
	StatusDelivered,
}

// StatusIndex returns the position of status in the pipeline, or -1 when the
// string matches no known stage exactly.
func StatusIndex(status string) int {
	for i, s := range OrderStatuses {
		if s == status {
			return i
		}
	}
	return -1
}

// IsFinalStatus reports whether status is exactly the last pipeline stage.
func IsFinalStatus(status string) bool {
	return status == StatusDelivered
}

// StatusProgress maps a status to a fill fraction for the progress bar:
// (index+1)/len(stages), with unknown statuses treated as the first stage.
func StatusProgress(status string) float64 {
	idx := StatusIndex(status)
	if idx < 0 {
		idx = 0
	}
	return float64(idx+1) / float64(len(OrderStatuses))
}
