// Package mocks provides hand-written test doubles for the service
// interfaces consumed by the HTTP layer.
//
// Each mock has a function field per method. When the field is nil the
// mock returns its default values, and every call is recorded for later
// assertions:
//
//	svc := &mocks.MockCardReviewService{Err: errors.New("db down")}
//	handler := api.NewCardHandler(svc, cardService, logger)
//	...
//	assert.Equal(t, 1, svc.SubmitReviewCalls.Count)
package mocks
