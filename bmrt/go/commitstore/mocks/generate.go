package mocks

//go:generate mockery --name Store --srcpkg=github.com/lwz9103/conbench/bmrt/go/commitstore --output ${PWD}
