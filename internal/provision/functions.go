package provision

import (
	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagent/types"
)

func param(description string, required bool) agenttypes.ParameterDetail {
	return agenttypes.ParameterDetail{
		Type:        agenttypes.TypeString,
		Description: sdkaws.String(description),
		Required:    sdkaws.Bool(required),
	}
}

// OrderFunctions is the function schema of the order action group.
func OrderFunctions() []agenttypes.Function {
	return []agenttypes.Function{
		{
			Name:        sdkaws.String("retrieve-order-tracking-info"),
			Description: sdkaws.String("Retrieve the tracking information and status of an order"),
			Parameters: map[string]agenttypes.ParameterDetail{
				"order_id": param("Unique id of the order", true),
			},
		},
		{
			Name:        sdkaws.String("cancel-order"),
			Description: sdkaws.String("Cancel an order"),
			Parameters: map[string]agenttypes.ParameterDetail{
				"order_id": param("Unique id of the order to cancel", true),
			},
		},
		{
			Name:        sdkaws.String("place-order"),
			Description: sdkaws.String("Place a new order"),
			Parameters: map[string]agenttypes.ParameterDetail{
				"product_name":     param("Name of the product to order", true),
				"quantity":         param("Number of units, defaults to 1", false),
				"shipping_address": param("Address to ship the order to", true),
				"payment_method":   param("Payment method for the order", true),
				"name":             param("Name of the customer placing the order", true),
			},
		},
	}
}

// ReturnFunctions is the function schema of the return-refund action group.
func ReturnFunctions() []agenttypes.Function {
	return []agenttypes.Function{
		{
			Name:        sdkaws.String("initiate-return"),
			Description: sdkaws.String("Start a return for a delivered order"),
			Parameters: map[string]agenttypes.ParameterDetail{
				"order_id": param("Unique id of the delivered order", true),
				"reason":   param("Why the customer is returning the item", false),
			},
		},
		{
			Name:        sdkaws.String("process-refund"),
			Description: sdkaws.String("Refund an order whose return was initiated"),
			Parameters: map[string]agenttypes.ParameterDetail{
				"order_id": param("Unique id of the returned order", true),
			},
		},
	}
}
