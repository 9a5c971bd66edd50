package budget

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

type stubStore struct {
	categories []core.Category
	expenses   []core.ExpenseRecord
}

func (s *stubStore) ListCategories(context.Context) ([]core.Category, error) {
	return s.categories, nil
}

func (s *stubStore) ListExpenses(context.Context) ([]core.ExpenseRecord, error) {
	return s.expenses, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sampleStore is the worked example: two categories, three expenses over
// two months.
func sampleStore() *stubStore {
	return &stubStore{
		categories: []core.Category{
			{ID: 9, Description: "Credit Card", Type: core.Credit},
			{ID: 14, Description: "Eating Out", Type: core.Expense},
		},
		expenses: []core.ExpenseRecord{
			{ID: 1, Date: core.NewDate(2020, 1, 10), CategoryID: 9, Amount: dec("-10"), Description: "card payment"},
			{ID: 2, Date: core.NewDate(2020, 1, 11), CategoryID: 9, Amount: dec("10"), Description: "refund"},
			{ID: 3, Date: core.NewDate(2020, 2, 1), CategoryID: 14, Amount: dec("-33.33"), Description: "dinner"},
		},
	}
}

func TestItemsJoinAndBalance(t *testing.T) {
	engine := NewEngine(sampleStore())
	items, err := engine.Items(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	wantBalances := []string{"-10", "0", "-33.33"}
	wantNames := []string{"Credit Card", "Credit Card", "Eating Out"}
	for i, it := range items {
		if !it.Balance.Equal(dec(wantBalances[i])) {
			t.Fatalf("item %d balance = %s, want %s", i, it.Balance, wantBalances[i])
		}
		if it.CategoryName != wantNames[i] {
			t.Fatalf("item %d category = %q, want %q", i, it.CategoryName, wantNames[i])
		}
	}

	// Running balance relation: items[i].balance == items[i-1].balance + items[i].amount
	for i := 1; i < len(items); i++ {
		want := items[i-1].Balance.Add(items[i].Amount)
		if !items[i].Balance.Equal(want) {
			t.Fatalf("item %d balance %s does not accumulate to %s", i, items[i].Balance, want)
		}
	}
}

func TestItemsExcludesOrphanedExpense(t *testing.T) {
	store := sampleStore()
	store.expenses = append(store.expenses, core.ExpenseRecord{
		ID: 4, Date: core.NewDate(2020, 3, 1), CategoryID: 999, Amount: dec("-5"),
	})

	engine := NewEngine(store)
	items, err := engine.Items(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	for _, it := range items {
		if it.ExpenseID == 4 {
			t.Fatal("orphaned expense leaked into projection")
		}
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
}

func TestItemsExclusiveBounds(t *testing.T) {
	store := sampleStore()
	engine := NewEngine(store)

	cases := []struct {
		name  string
		f     Filter
		want  int
		first int64
	}{
		{"unbounded", Filter{}, 3, 1},
		{"start excludes exact date", Filter{Start: core.NewDate(2020, 1, 10)}, 2, 2},
		{"end excludes exact date", Filter{End: core.NewDate(2020, 2, 1)}, 2, 1},
		{"window", Filter{Start: core.NewDate(2020, 1, 10), End: core.NewDate(2020, 2, 1)}, 1, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := engine.Items(context.Background(), tc.f)
			if err != nil {
				t.Fatalf("Items: %v", err)
			}
			if len(items) != tc.want {
				t.Fatalf("expected %d items, got %d", tc.want, len(items))
			}
			if len(items) > 0 && items[0].ExpenseID != tc.first {
				t.Fatalf("first item = %d, want %d", items[0].ExpenseID, tc.first)
			}
		})
	}
}

func TestItemsCategoryFilter(t *testing.T) {
	engine := NewEngine(sampleStore())
	items, err := engine.Items(context.Background(), Filter{ByCategory: true, CategoryID: 9})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	for _, it := range items {
		if it.CategoryID != 9 {
			t.Fatalf("item %d has category %d, want 9", it.ExpenseID, it.CategoryID)
		}
	}

	// CategoryID is ignored while the flag is off.
	all, err := engine.Items(context.Background(), Filter{CategoryID: 9})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("flag off: expected 3 items, got %d", len(all))
	}
}

func TestItemsStableOrderOnDateTies(t *testing.T) {
	store := sampleStore()
	store.expenses = []core.ExpenseRecord{
		{ID: 1, Date: core.NewDate(2020, 1, 10), CategoryID: 9, Amount: dec("-1")},
		{ID: 2, Date: core.NewDate(2020, 1, 10), CategoryID: 14, Amount: dec("-2")},
		{ID: 3, Date: core.NewDate(2020, 1, 10), CategoryID: 9, Amount: dec("-3")},
	}
	engine := NewEngine(store)
	items, err := engine.Items(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	for i, want := range []int64{1, 2, 3} {
		if items[i].ExpenseID != want {
			t.Fatalf("tie order broken: position %d has id %d, want %d", i, items[i].ExpenseID, want)
		}
	}
}

func TestItemsByMonth(t *testing.T) {
	engine := NewEngine(sampleStore())
	groups, err := engine.ItemsByMonth(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ItemsByMonth: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	if groups[0].Key != "2020/01" || len(groups[0].Items) != 2 || !groups[0].Total.Equal(dec("0")) {
		t.Fatalf("january group wrong: %+v", groups[0])
	}
	if groups[1].Key != "2020/02" || len(groups[1].Items) != 1 || !groups[1].Total.Equal(dec("-33.33")) {
		t.Fatalf("february group wrong: %+v", groups[1])
	}
}

func TestItemsByCategory(t *testing.T) {
	engine := NewEngine(sampleStore())
	groups, err := engine.ItemsByCategory(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ItemsByCategory: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Name != "Credit Card" || len(groups[0].Items) != 2 || !groups[0].Total.Equal(dec("0")) {
		t.Fatalf("first group wrong: %+v", groups[0])
	}
	if groups[1].Name != "Eating Out" || len(groups[1].Items) != 1 || !groups[1].Total.Equal(dec("-33.33")) {
		t.Fatalf("second group wrong: %+v", groups[1])
	}
}

func TestItemsByCategoryOrdinalOrder(t *testing.T) {
	store := &stubStore{
		categories: []core.Category{
			{ID: 1, Description: "apple", Type: core.Expense},
			{ID: 2, Description: "Zebra", Type: core.Expense},
		},
		expenses: []core.ExpenseRecord{
			{ID: 1, Date: core.NewDate(2021, 5, 1), CategoryID: 1, Amount: dec("-1")},
			{ID: 2, Date: core.NewDate(2021, 5, 2), CategoryID: 2, Amount: dec("-2")},
		},
	}
	engine := NewEngine(store)
	groups, err := engine.ItemsByCategory(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ItemsByCategory: %v", err)
	}
	// Ordinal comparison puts uppercase before lowercase.
	if groups[0].Name != "Zebra" || groups[1].Name != "apple" {
		t.Fatalf("expected [Zebra apple], got [%s %s]", groups[0].Name, groups[1].Name)
	}
}

func TestPartitionIdentity(t *testing.T) {
	store := &stubStore{
		categories: []core.Category{
			{ID: 1, Description: "Rent", Type: core.Expense},
			{ID: 2, Description: "Salary", Type: core.Income},
			{ID: 3, Description: "Groceries", Type: core.Expense},
		},
		expenses: []core.ExpenseRecord{
			{ID: 1, Date: core.NewDate(2022, 1, 5), CategoryID: 2, Amount: dec("2500")},
			{ID: 2, Date: core.NewDate(2022, 1, 6), CategoryID: 1, Amount: dec("-900")},
			{ID: 3, Date: core.NewDate(2022, 1, 20), CategoryID: 3, Amount: dec("-120.55")},
			{ID: 4, Date: core.NewDate(2022, 2, 5), CategoryID: 2, Amount: dec("2500")},
			{ID: 5, Date: core.NewDate(2022, 2, 6), CategoryID: 1, Amount: dec("-900")},
			{ID: 6, Date: core.NewDate(2022, 3, 14), CategoryID: 3, Amount: dec("-87.10")},
		},
	}
	engine := NewEngine(store)
	ctx := context.Background()

	items, err := engine.Items(ctx, Filter{})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	months, err := engine.ItemsByMonth(ctx, Filter{})
	if err != nil {
		t.Fatalf("ItemsByMonth: %v", err)
	}
	categories, err := engine.ItemsByCategory(ctx, Filter{})
	if err != nil {
		t.Fatalf("ItemsByCategory: %v", err)
	}

	monthSum := decimal.Zero
	for _, g := range months {
		monthSum = monthSum.Add(g.Total)
	}
	categorySum := decimal.Zero
	for _, g := range categories {
		categorySum = categorySum.Add(g.Total)
	}
	finalBalance := items[len(items)-1].Balance

	if !monthSum.Equal(finalBalance) {
		t.Fatalf("month sum %s != final balance %s", monthSum, finalBalance)
	}
	if !categorySum.Equal(finalBalance) {
		t.Fatalf("category sum %s != final balance %s", categorySum, finalBalance)
	}
}

func TestPivot(t *testing.T) {
	engine := NewEngine(sampleStore())
	rows, err := engine.Pivot(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}
	// 2 month rows plus the trailing totals row.
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	jan := rows[0]
	if jan.Month != "2020/01" || !jan.MonthTotal.Equal(dec("0")) {
		t.Fatalf("january row wrong: %+v", jan)
	}
	cc, ok := jan.Cell("Credit Card")
	if !ok || !cc.Subtotal.Equal(dec("0")) || len(cc.Items) != 2 {
		t.Fatalf("january Credit Card cell wrong: %+v", cc)
	}
	if _, ok := jan.Cell("Eating Out"); ok {
		t.Fatal("january should have no Eating Out cell")
	}

	feb := rows[1]
	if feb.Month != "2020/02" || !feb.MonthTotal.Equal(dec("-33.33")) {
		t.Fatalf("february row wrong: %+v", feb)
	}

	totals := rows[2]
	if totals.Month != core.PivotTotalsKey {
		t.Fatalf("last row key = %q, want %q", totals.Month, core.PivotTotalsKey)
	}
	if len(totals.Cells) != 2 {
		t.Fatalf("totals row has %d cells, want 2", len(totals.Cells))
	}
	for _, c := range totals.Cells {
		if c.Items != nil {
			t.Fatalf("totals cell %q carries items", c.Category)
		}
	}
}

func TestPivotGrandTotals(t *testing.T) {
	store := sampleStore()
	store.expenses = append(store.expenses,
		core.ExpenseRecord{ID: 5, Date: core.NewDate(2020, 2, 14), CategoryID: 9, Amount: dec("-7.50")},
		core.ExpenseRecord{ID: 6, Date: core.NewDate(2020, 3, 2), CategoryID: 14, Amount: dec("-12")},
	)
	engine := NewEngine(store)
	rows, err := engine.Pivot(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}

	totals := rows[len(rows)-1]
	if totals.Month != core.PivotTotalsKey {
		t.Fatalf("missing totals row")
	}

	// Every category's grand total equals the sum of its per-month subtotals.
	for _, tc := range totals.Cells {
		sum := decimal.Zero
		for _, row := range rows[:len(rows)-1] {
			if c, ok := row.Cell(tc.Category); ok {
				sum = sum.Add(c.Subtotal)
			}
		}
		if !tc.Subtotal.Equal(sum) {
			t.Fatalf("grand total for %q = %s, want %s", tc.Category, tc.Subtotal, sum)
		}
	}
}

func TestPivotEmptyLedger(t *testing.T) {
	engine := NewEngine(&stubStore{})
	rows, err := engine.Pivot(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}
	if len(rows) != 1 || rows[0].Month != core.PivotTotalsKey || len(rows[0].Cells) != 0 {
		t.Fatalf("expected bare totals row, got %+v", rows)
	}
}

func TestItemsEmptyLedger(t *testing.T) {
	engine := NewEngine(&stubStore{})
	items, err := engine.Items(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}
