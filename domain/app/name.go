package app

const Name = "multitun"
