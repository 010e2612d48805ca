// mkoperator hashes an operator password and prints the INSERT statement
// for the operators table. Operator accounts are provisioned out of band;
// the terminal only reads them at login.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/iliyamo/cafeteria-pos/internal/utils"
)

func main() {
	username := flag.String("username", "", "operator username (required)")
	password := flag.String("password", "", "plain password to hash (required)")
	name := flag.String("name", "", "display name (defaults to username)")
	role := flag.String("role", "operator", "operator role")
	cost := flag.Int("cost", 10, "bcrypt cost")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("mkoperator: -username and -password are required")
	}
	if *name == "" {
		*name = *username
	}

	hash, err := utils.HashOperatorPassword(*password, *cost)
	if err != nil {
		log.Fatalf("mkoperator: hash: %v", err)
	}

	fmt.Printf("INSERT INTO operators (username, name, password_hash, role, is_active)\nVALUES ('%s', '%s', '%s', '%s', 1);\n",
		*username, *name, hash, *role)
}
