package mq_client

type Exchange struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type Queue struct {
	Name    string `yaml:"name"`
	Durable bool   `yaml:"durable"`
}

type Binding struct {
	Queue      string `yaml:"queue"`
	CleanStart bool   `yaml:"clean_start"`
	Exchange   string `yaml:"exchange"`
}

type Channel struct {
	Prefetch int `yaml:"prefetch"`
}

type MQClientConfig struct {
	Exchange struct {
		Trade     Exchange `yaml:"trade"`
		Orderbook Exchange `yaml:"orderbook"`
		Events    Exchange `yaml:"events"`
		Matching  Exchange `yaml:"matching"`
		Escrow    Exchange `yaml:"escrow"`
	}
	Queue struct {
		Matching        Queue `yaml:"matching"`
		NewTrade        Queue `yaml:"new_trade"`
		OrderProcessor  Queue `yaml:"order_processor"`
		DepthCache      Queue `yaml:"depth_cache"`
		InfluxWriter    Queue `yaml:"influx_writer"`
		EscrowProcessor Queue `yaml:"escrow_processor"`
		EventsProcessor Queue `yaml:"events_processor"`
	}
	Binding struct {
		Matching        Binding `yaml:"matching"`
		TradeExecutor   Binding `yaml:"trade_executor"`
		OrderProcessor  Binding `yaml:"order_processor"`
		DepthCache      Binding `yaml:"depth_cache"`
		InfluxWriter    Binding `yaml:"influx_writer"`
		EscrowProcessor Binding `yaml:"escrow_processor"`
		EventsProcessor Binding `yaml:"events_processor"`
	}
	Channel struct {
		TradeExecutor   Channel `yaml:"trade_executor"`
		OrderProcessor  Channel `yaml:"order_processor"`
		Matching        Channel `yaml:"matching"`
		DepthCache      Channel `yaml:"depth_cache"`
		EscrowProcessor Channel `yaml:"escrow_processor"`
	}
}
