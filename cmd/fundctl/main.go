// Command fundctl runs submissions through the ingest pipeline from the
// command line and manages the database schema.
package main

func main() {
	Execute()
}
