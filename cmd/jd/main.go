// Command jd is the jobdeck CLI: a personal job search tracker whose
// database lives in an object store bucket and is edited locally under a
// coordination lock.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
