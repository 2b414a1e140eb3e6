package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"commerce-service/internal/models"
)

func TestMapPrintStatus(t *testing.T) {
	assert.Equal(t, models.PrintJobStatusShipped, MapPrintStatus(ProviderStatusShipped))
	assert.Equal(t, models.PrintJobStatusDelivered, MapPrintStatus(ProviderStatusDelivered))
	assert.Equal(t, models.PrintJobStatusFailed, MapPrintStatus(ProviderStatusRejected))
	assert.Equal(t, models.PrintJobStatusCancelled, MapPrintStatus(ProviderStatusCancelled))

	// in-flight and unknown statuses stay non-terminal so sync keeps polling
	assert.Equal(t, models.PrintJobStatusSubmitted, MapPrintStatus(ProviderStatusInProd))
	assert.Equal(t, models.PrintJobStatusSubmitted, MapPrintStatus("SOMETHING_NEW"))
}
