package response

type OrderAcceptedResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func NewOrderAccepted() *OrderAcceptedResponse {
	return &OrderAcceptedResponse{
		Status:  "processing",
		Message: "Order queued for processing",
	}
}
