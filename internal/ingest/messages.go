package ingest

import "fmt"

func unsupportedRoundMessage(round int) string {
	return fmt.Sprintf("Reporting round %d is not supported. Check you are using the right template.", round)
}

func unknownFundMessage(fund string) string {
	return fmt.Sprintf("We do not recognise the fund %q.", fund)
}

func fundMismatchMessage(fund string) string {
	return fmt.Sprintf("The fund type in the workbook does not match the fund %q this file was submitted for.", fund)
}
