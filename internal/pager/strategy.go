package pager

import (
	"context"
	"strconv"
)

// Strategy is one way of moving the results to a target page.
type Strategy struct {
	Name string
	// Trigger fires the navigation and reports whether it could.
	Trigger func(ctx context.Context, p Page, site Site, target int) (bool, error)
	// AwaitTable makes an unconfirmed attempt wait for the results table
	// and compare the indicator once more before giving up.
	AwaitTable bool
}

// Strategy names, also used as metric labels.
const (
	StrategyInvoke = "invoke_function"
	StrategyForm   = "submit_form"
	StrategyClick  = "click_next"
)

// DefaultStrategies returns the navigation chain in preference order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Name: StrategyInvoke,
			Trigger: func(ctx context.Context, p Page, site Site, target int) (bool, error) {
				return p.Invoke(ctx, site.PagerFunc, site.PagerTarget, strconv.Itoa(target))
			},
		},
		{
			Name: StrategyForm,
			Trigger: func(ctx context.Context, p Page, site Site, target int) (bool, error) {
				return p.SubmitForm(ctx, site.PagerForm,
					map[string]string{site.PageField: strconv.Itoa(target)},
					map[string]string{site.PageSizeField: site.PageSizeValue},
				)
			},
		},
		{
			// Only pager controls: course titles can contain "Next" too.
			Name: StrategyClick,
			Trigger: func(ctx context.Context, p Page, site Site, _ int) (bool, error) {
				return p.Click(ctx, site.NextControl, site.NextText)
			},
			AwaitTable: true,
		},
	}
}
