package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licenca-shop/licenca/internal/tenant"
)

// memStore implements CheckoutStore in memory with transaction semantics:
// the callback works on a deep copy and the copy only becomes visible when
// it returns nil.
type memStore struct {
	state memState
}

type memState struct {
	keys  map[string][]memKey
	cart  map[string][]CartLine
	funds map[string]UserFunds
	spent map[string]decimal.Decimal
	all   []Order
	items []Item
	byExt map[string]Order
}

type memKey struct {
	id, value string
	used      bool
}

func ck(userID, tenantID string) string { return userID + "|" + tenantID }

func newMemStore() *memStore {
	return &memStore{state: memState{
		keys:  map[string][]memKey{},
		cart:  map[string][]CartLine{},
		funds: map[string]UserFunds{},
		spent: map[string]decimal.Decimal{},
		byExt: map[string]Order{},
	}}
}

func (s *memState) clone() memState {
	c := memState{
		keys:  map[string][]memKey{},
		cart:  map[string][]CartLine{},
		funds: map[string]UserFunds{},
		spent: map[string]decimal.Decimal{},
		all:   append([]Order(nil), s.all...),
		items: append([]Item(nil), s.items...),
		byExt: map[string]Order{},
	}
	for k, v := range s.keys {
		c.keys[k] = append([]memKey(nil), v...)
	}
	for k, v := range s.cart {
		c.cart[k] = append([]CartLine(nil), v...)
	}
	for k, v := range s.funds {
		c.funds[k] = v
	}
	for k, v := range s.spent {
		c.spent[k] = v
	}
	for k, v := range s.byExt {
		c.byExt[k] = v
	}
	return c
}

func (s *memStore) WithTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	work := s.state.clone()
	if err := fn(&memTx{st: &work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type memTx struct{ st *memState }

func (t *memTx) OrderByExternalID(_ context.Context, externalID string) (Order, bool, error) {
	o, ok := t.st.byExt[externalID]
	return o, ok, nil
}

func (t *memTx) LockUser(_ context.Context, userID string) (UserFunds, error) {
	f, ok := t.st.funds[userID]
	if !ok {
		return UserFunds{}, ErrUserUnavailable
	}
	return f, nil
}

func (t *memTx) CartLines(_ context.Context, userID, tenantID string) ([]CartLine, error) {
	return t.st.cart[ck(userID, tenantID)], nil
}

func (t *memTx) AllocateKeys(_ context.Context, productID, _ string, n int) ([]AllocatedKey, error) {
	var out []AllocatedKey
	pool := t.st.keys[productID]
	for i := range pool {
		if len(out) == n {
			break
		}
		if pool[i].used {
			continue
		}
		pool[i].used = true
		out = append(out, AllocatedKey{ID: pool[i].id, KeyValue: pool[i].value})
	}
	return out, nil
}

func (t *memTx) SpentCompleted(_ context.Context, userID, tenantID string) (decimal.Decimal, error) {
	spent := t.st.spent[ck(userID, tenantID)]
	for _, o := range t.st.all {
		if o.UserID == userID && o.TenantID == tenantID && o.PaymentStatus == PaymentCompleted {
			spent = spent.Add(o.FinalAmount.Decimal)
		}
	}
	return spent, nil
}

func (t *memTx) InsertOrder(_ context.Context, o *Order, items []Item) error {
	o.OrderNumber = int64(len(t.st.all) + 1)
	t.st.all = append(t.st.all, *o)
	t.st.items = append(t.st.items, items...)
	if o.ExternalID != nil {
		t.st.byExt[*o.ExternalID] = *o
	}
	return nil
}

func (t *memTx) ClearCart(_ context.Context, userID, tenantID string) error {
	delete(t.st.cart, ck(userID, tenantID))
	return nil
}

func (s *memStore) usedKeys(productID string) int {
	n := 0
	for _, k := range s.state.keys[productID] {
		if k.used {
			n++
		}
	}
	return n
}

func setup() (*Service, *memStore) {
	st := newMemStore()
	st.state.keys["p1"] = []memKey{
		{id: "k1", value: "AAAA-1111"},
		{id: "k2", value: "AAAA-2222"},
		{id: "k3", value: "AAAA-3333"},
	}
	st.state.keys["p2"] = []memKey{{id: "k4", value: "BBBB-1111"}}
	st.state.funds["u1"] = UserFunds{StartingBalance: d("100.00"), CreditLimit: decimal.Zero}
	return &Service{Store: st}, st
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path consumes one key per unit", func(t *testing.T) {
		svc, st := setup()
		st.state.cart[ck("u1", "EUR")] = []CartLine{{ProductID: "p1", Quantity: 2, UnitPrice: d("10.00")}}

		o, items, existed, err := svc.Checkout(ctx, "u1", tenant.EUR, "")
		require.NoError(t, err)
		assert.False(t, existed)

		assert.True(t, o.TotalAmount.Equal(d("20.00")))
		assert.True(t, o.TaxAmount.Equal(d("4.20")))
		assert.True(t, o.FinalAmount.Equal(d("24.20")))
		assert.Equal(t, StatusCreated, o.Status)
		assert.Equal(t, PaymentCompleted, o.PaymentStatus)
		assert.Equal(t, "EUR", o.Currency)
		assert.EqualValues(t, 1, o.OrderNumber)

		require.Len(t, items, 2)
		assert.NotEqual(t, items[0].LicenseKeyID, items[1].LicenseKeyID)
		assert.Equal(t, 2, st.usedKeys("p1"))
		assert.Empty(t, st.state.cart[ck("u1", "EUR")], "cart cleared")
	})

	t.Run("item count equals sum of quantities across lines", func(t *testing.T) {
		svc, st := setup()
		st.state.cart[ck("u1", "EUR")] = []CartLine{
			{ProductID: "p1", Quantity: 2, UnitPrice: d("10.00")},
			{ProductID: "p2", Quantity: 1, UnitPrice: d("5.00")},
		}
		_, items, _, err := svc.Checkout(ctx, "u1", tenant.EUR, "")
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("a used key is never allocated twice", func(t *testing.T) {
		svc, st := setup()
		st.state.cart[ck("u1", "EUR")] = []CartLine{{ProductID: "p1", Quantity: 1, UnitPrice: d("10.00")}}
		_, first, _, err := svc.Checkout(ctx, "u1", tenant.EUR, "")
		require.NoError(t, err)

		st.state.cart[ck("u1", "EUR")] = []CartLine{{ProductID: "p1", Quantity: 1, UnitPrice: d("10.00")}}
		_, second, _, err := svc.Checkout(ctx, "u1", tenant.EUR, "")
		require.NoError(t, err)

		assert.NotEqual(t, first[0].LicenseKeyID, second[0].LicenseKeyID)
		assert.Equal(t, 2, st.usedKeys("p1"))
	})

	t.Run("key shortage rolls everything back", func(t *testing.T) {
		svc, st := setup()
		st.state.cart[ck("u1", "EUR")] = []CartLine{{ProductID: "p2", Quantity: 2, UnitPrice: d("5.00")}}

		_, _, _, err := svc.Checkout(ctx, "u1", tenant.EUR, "")
		var short ErrInsufficientKeys
		require.ErrorAs(t, err, &short)
		assert.Equal(t, "p2", short.ProductID)
		assert.Equal(t, 2, short.Required)
		assert.Equal(t, 1, short.Available)

		assert.Equal(t, 0, st.usedKeys("p2"), "no key consumed on rollback")
		assert.Len(t, st.state.cart[ck("u1", "EUR")], 1, "cart intact")
		assert.Empty(t, st.state.all, "no order written")
	})

	t.Run("insufficient funds rolls everything back", func(t *testing.T) {
		svc, st := setup()
		st.state.funds["u1"] = UserFunds{StartingBalance: d("10.00"), CreditLimit: decimal.Zero}
		st.state.cart[ck("u1", "EUR")] = []CartLine{{ProductID: "p1", Quantity: 1, UnitPrice: d("10.00")}}

		_, _, _, err := svc.Checkout(ctx, "u1", tenant.EUR, "")
		require.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, 0, st.usedKeys("p1"))
		assert.Empty(t, st.state.all)
	})

	t.Run("credit limit extends the spendable headroom", func(t *testing.T) {
		svc, st := setup()
		st.state.funds["u1"] = UserFunds{StartingBalance: d("10.00"), CreditLimit: d("20.00")}
		st.state.cart[ck("u1", "EUR")] = []CartLine{{ProductID: "p1", Quantity: 1, UnitPrice: d("10.00")}}

		_, _, _, err := svc.Checkout(ctx, "u1", tenant.EUR, "")
		require.NoError(t, err, "12.10 fits within 10 + 20 credit")
	})

	t.Run("prior completed orders count against the balance", func(t *testing.T) {
		svc, st := setup()
		st.state.spent[ck("u1", "EUR")] = d("90.00")
		st.state.cart[ck("u1", "EUR")] = []CartLine{{ProductID: "p1", Quantity: 1, UnitPrice: d("10.00")}}

		_, _, _, err := svc.Checkout(ctx, "u1", tenant.EUR, "")
		require.ErrorIs(t, err, ErrInsufficientFunds, "only 10.00 left, order needs 12.10")
	})

	t.Run("empty cart is rejected", func(t *testing.T) {
		svc, _ := setup()
		_, _, _, err := svc.Checkout(ctx, "u1", tenant.EUR, "")
		require.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("unknown user is rejected", func(t *testing.T) {
		svc, _ := setup()
		_, _, _, err := svc.Checkout(ctx, "ghost", tenant.EUR, "")
		require.ErrorIs(t, err, ErrUserUnavailable)
	})

	t.Run("repeated external_id returns the original order", func(t *testing.T) {
		svc, st := setup()
		st.state.cart[ck("u1", "EUR")] = []CartLine{{ProductID: "p1", Quantity: 2, UnitPrice: d("10.00")}}

		first, _, existed, err := svc.Checkout(ctx, "u1", tenant.EUR, "req-42")
		require.NoError(t, err)
		require.False(t, existed)

		second, items, existed, err := svc.Checkout(ctx, "u1", tenant.EUR, "req-42")
		require.NoError(t, err)
		assert.True(t, existed)
		assert.Equal(t, first.ID, second.ID)
		assert.Nil(t, items)
		assert.Len(t, st.state.all, 1, "no duplicate order")
		assert.Equal(t, 2, st.usedKeys("p1"), "no extra keys consumed")
	})
}
