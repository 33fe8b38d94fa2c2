package bitbucket

import (
	"context"
	"fmt"
)

// usersService implements the UsersService interface.
type usersService struct {
	*service
}

// Current retrieves the account the client is authenticated as.
func (us *usersService) Current(ctx context.Context) (*Account, error) {
	us.client.Logger.Debug("fetching current user")

	response, err := us.client.get(ctx, "/user", nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching current user: %w", err)
	}

	var account Account
	if err := unmarshalResponse(response, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
