package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/storefront/internal/dto"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

func TestValidator_Seller(t *testing.T) {
	v := New()

	valid := dto.CreateSellerRequest{
		Cpf:       "123.456.789-09",
		Name:      "Maria",
		Email:     "maria@example.com",
		Telephone: "+55(11)91234-5678",
	}
	require.NoError(t, v.Validate(valid))

	digits := valid
	digits.Cpf = "12345678909"
	digits.Telephone = "+55(11)1234-5678"
	require.NoError(t, v.Validate(digits))

	cases := map[string]func(*dto.CreateSellerRequest){
		"cpf":       func(r *dto.CreateSellerRequest) { r.Cpf = "123.456.789" },
		"name":      func(r *dto.CreateSellerRequest) { r.Name = "Al" },
		"email":     func(r *dto.CreateSellerRequest) { r.Email = "not-an-email" },
		"telephone": func(r *dto.CreateSellerRequest) { r.Telephone = "11 91234-5678" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			req := valid
			mutate(&req)
			err := v.Validate(req)
			require.Error(t, err)
			assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
			assert.Contains(t, errorbank.From(err).Details(), field)
		})
	}
}

func TestValidator_OptionalFields(t *testing.T) {
	v := New()
	require.NoError(t, v.Validate(dto.UpdateSellerRequest{}))

	bad := "x"
	err := v.Validate(dto.UpdateSellerRequest{Cpf: &bad})
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
}
