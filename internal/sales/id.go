package sales

import (
	"fmt"
	"regexp"
	"strconv"

	"salesdesk/backend/internal/domain"
)

var saleIDPattern = regexp.MustCompile(`^S(\d+)$`)

// NextSaleID returns the next sequential sale identifier: the highest
// numeric suffix among ids matching S<digits>, plus one, zero-padded to at
// least 3 digits. Ids that don't match the pattern are ignored. The result
// is deterministic for a given collection; random ids are reserved for
// unpersisted client drafts (see the xid package).
func NextSaleID(existing []domain.Sale) string {
	max := 0
	for _, sale := range existing {
		match := saleIDPattern.FindStringSubmatch(sale.ID)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("S%03d", max+1)
}
