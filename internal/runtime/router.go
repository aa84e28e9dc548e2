package runtime

import "github.com/aretw0/stepflow/pkg/domain"

// Route evaluates rules in declared order and returns the successor of the first
// rule whose variable equals its literal (case-sensitive, exact). When no rule
// matches, defaultSuccessor is returned. The context is never modified.
//
// A variable that is absent when its rule is evaluated fails with MissingField.
// Non-string values never match.
func Route(ctx domain.Context, rules []domain.ChoiceRule, defaultSuccessor string) (string, error) {
	for _, rule := range rules {
		value, err := lookup(ctx, rule.Variable)
		if err != nil {
			return "", err
		}
		if s, ok := value.(string); ok && s == rule.StringEquals {
			return rule.Next, nil
		}
	}

	if defaultSuccessor == "" {
		return "", domain.NewStepError(domain.KindInvalidDefinition, "", "no rule matched and no default successor is defined")
	}
	return defaultSuccessor, nil
}
