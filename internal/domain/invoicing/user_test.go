package invoicing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("sub-123", "jane.doe@example.test", "")
	require.NoError(t, err)

	assert.Equal(t, "jane.doe", u.Username)
	assert.Equal(t, "jane.doe", u.DisplayName)
	assert.Equal(t, "US", u.Country)
	assert.Equal(t, "USD", u.Currency)
	assert.Equal(t, "blue", u.InvoiceColorScheme)

	u, err = NewUser("sub-123", "jane@example.test", "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", u.DisplayName)

	_, err = NewUser(" ", "jane@example.test", "")
	assert.Error(t, err)
}

func TestUser_Logo(t *testing.T) {
	u := &User{AILogoURL: "https://blob/ai.png"}
	assert.True(t, u.HasLogo())

	u.SetLogo("https://blob/logo.png")
	assert.Equal(t, "https://blob/logo.png", u.LogoURL)

	u.ClearLogo()
	assert.Empty(t, u.LogoURL)
	assert.True(t, u.HasLogo())
}

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer("user-1", CustomerProfile{DisplayName: "  Bob  ", Email: "bob@example.test"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", c.DisplayName)
	assert.True(t, c.BelongsTo("user-1"))

	_, err = NewCustomer("user-1", CustomerProfile{DisplayName: ""})
	assert.Error(t, err)

	_, err = NewCustomer("user-1", CustomerProfile{DisplayName: "Bob", Email: "not-an-email"})
	assert.Error(t, err)

	quick, err := NewQuickCustomer("user-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Customer", quick.DisplayName)
}
