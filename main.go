package main

import (
	"github.com/km-arc/go-ioc/framework/console"
	"github.com/km-arc/go-ioc/framework/container"
)

func main() {
	console.Execute(container.DefaultTypes())
}
