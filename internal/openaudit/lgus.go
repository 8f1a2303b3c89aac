package openaudit

import (
	"context"
	"fmt"
	"net/url"
)

// LGUsService covers /lgus.
type LGUsService struct {
	client *Client
}

// List returns local governments, optionally restricted to a province.
func (s *LGUsService) List(ctx context.Context, params LGUListParams) ([]LocalGovernment, error) {
	var lgus []LocalGovernment
	if err := s.client.get(ctx, "/lgus", "/lgus", params.Values(), &lgus); err != nil {
		return nil, err
	}
	return lgus, nil
}

// Provinces returns the distinct province names.
func (s *LGUsService) Provinces(ctx context.Context) ([]string, error) {
	var provinces []string
	if err := s.client.get(ctx, "/lgus/provinces", "/lgus/provinces", nil, &provinces); err != nil {
		return nil, err
	}
	return provinces, nil
}

// Get returns the LGU with its transactions and reports.
func (s *LGUsService) Get(ctx context.Context, id int64) (LGUDetail, error) {
	var detail LGUDetail
	err := s.client.get(ctx, fmt.Sprintf("/lgus/%d", id), "/lgus/{id}", nil, &detail)
	return detail, err
}

// SearchByName returns LGUs whose name contains name.
func (s *LGUsService) SearchByName(ctx context.Context, name string) ([]LocalGovernment, error) {
	var lgus []LocalGovernment
	if err := s.client.get(ctx, "/lgus/search/by-name", "/lgus/search/by-name", NameParam(name), &lgus); err != nil {
		return nil, err
	}
	return lgus, nil
}

// NameParam encodes the LGU name search parameter.
func NameParam(name string) url.Values {
	v := url.Values{}
	setString(v, "name", &name)
	return v
}
