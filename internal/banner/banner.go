package banner

import "fmt"

const Version = "1.0.0"

func Print() {
	banner := `
    __                 ____  _
   / /   ____  ____ _ / __ \(_)____  ___
  / /   / __ \/ __ '// /_/ / // __ \/ _ \
 / /___/ /_/ / /_/ // ____/ // /_/ /  __/
/_____/\____/\__, //_/   /_// .___/\___/
            /____/         /_/  v%s - Log Pipeline
    `
	fmt.Printf(banner, Version)
	fmt.Println("\n------------------------------------------------")
}
