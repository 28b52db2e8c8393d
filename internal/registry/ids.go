package registry

import "github.com/google/uuid"

func newAgentID() string {
	return uuid.NewString()
}

func newClientID() string {
	return uuid.NewString()
}

func newServiceID() string {
	return uuid.NewString()
}
